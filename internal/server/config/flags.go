package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/userdir/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC health bind address (e.g. ":50051")
//	-s string     store driver: postgres, sqlite, mongo, memory
//	-d string     PostgreSQL DSN
//	-f string     SQLite database file
//	-m string     MongoDB URI
//	-n string     MongoDB database name
//	-t duration   store call timeout (e.g. "3s")
//	-l string     log level
//	-o            enable stdout tracing
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-g", "-s", "-d", "-f", "-m", "-n", "-t", "-l", "-o"},
		"-o",
	)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.StoreDriver, "s", config.StoreDriver, "store driver (postgres|sqlite|mongo|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SQLitePath, "f", config.SQLitePath, "sqlite database file")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongodb uri")
	fs.StringVar(&config.MongoDatabase, "n", config.MongoDatabase, "mongodb database")
	fs.DurationVar(&config.StoreTimeout, "t", config.StoreTimeout, "store call timeout")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.TracingEnabled, "o", config.TracingEnabled, "export traces to stdout")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
