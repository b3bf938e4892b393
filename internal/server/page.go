package server

import _ "embed"

// viewerHTML is the X3DOM viewer page served at /. It loads /scene.x3d
// into an inline node and reloads itself on websocket "reload" messages.
//
//go:embed viewer.html
var viewerHTML []byte
