package main

import "langgol/internal/app"

// @title           Langgol API
// @version         1.0
// @description     Account, history and demo-metering backend for the Langgol farmer-support app.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
