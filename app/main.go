package main

import "github.com/lloydmeta/banques/app/cmd"

func main() {
	cmd.Execute()
}

// @title Banques API
// @version 0.0.1
// @description An event-sourced account ledger backed by Postgres

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @securityDefinitions.basic BasicAuth
// @BasePath /
