// Command saint serves the demo admin interface.
package main

import (
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/saint/internal/cli"
	"github.com/syssam/saint/internal/demo"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	app := cli.App{
		Name:    "saint",
		Version: Version,
		Graph:   demo.Graph,
		Setup:   demo.Setup,
		Seed:    demo.Seed,
	}
	if err := cli.Execute(app); err != nil {
		os.Exit(1)
	}
}
