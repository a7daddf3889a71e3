// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package transformers contains transformers for [client.Client.Use].
//
// [client.Client.Use]: https://pkg.go.dev/go.astrophena.name/botapi/client#Client.Use
package transformers
