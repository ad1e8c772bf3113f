package main

import (
	"github.com/attested/dossier/internal/server"
	"github.com/attested/dossier/internal/util"
	"github.com/attested/dossier/pkg/logger"
	"github.com/attested/dossier/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	server.Init()
}
