package api

import (
	"embed"
	"io/fs"
	"net/http"
)

// webFiles is the browser front end. It talks to /api/lists with the API key
// the user enters, so the files themselves are served without auth.
//
//go:embed web
var webFiles embed.FS

func staticHandler() http.Handler {
	sub, err := fs.Sub(webFiles, "web")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
