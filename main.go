package main

import (
	"vibe-transcode-service/app"
)

func main() {
	app.Run()
}
