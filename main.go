package main

import (
	"flag"

	"github.com/zhukovaskychina/xmysql-proto/logger"
	"github.com/zhukovaskychina/xmysql-proto/server/auth"
	"github.com/zhukovaskychina/xmysql-proto/server/conf"
	"github.com/zhukovaskychina/xmysql-proto/server/dispatcher"
	"github.com/zhukovaskychina/xmysql-proto/server/net"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "configPath", "", "path to the my.ini style configuration file")
	flag.Parse()

	config := conf.NewCfg()
	if configPath != "" {
		if _, err := config.Load(configPath); err != nil {
			logger.Fatalf("load configuration: %v", err)
		}
	}

	if err := logger.InitLogger(logger.LogConfig{
		ErrorLogPath: config.LogError,
		InfoLogPath:  config.LogInfos,
		LogLevel:     config.LogLevel,
	}); err != nil {
		logger.Fatalf("init logger: %v", err)
	}

	credentials, err := conf.LoadUsers(config.UsersFile)
	if err != nil {
		logger.Fatalf("load users: %v", err)
	}
	validator := auth.NewValidator(credentials)
	handler := dispatcher.NewSystemVariableHandler(config.ServerVersion)

	srv := net.NewMySQLServer(config, handler, validator)
	if err := srv.Start(); err != nil {
		logger.Fatalf("start server: %v", err)
	}
	srv.RunSignalLoop()
}
