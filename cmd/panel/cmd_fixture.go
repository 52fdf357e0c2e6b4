package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"lessonpanel/internal/fixture"
	"lessonpanel/internal/logging"
)

var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Demo dashboard server",
}

var fixtureServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a demo dashboard with charts, notifications and the booking form",
	RunE:  fixtureServe,
}

var fixtureAddr string

func init() {
	fixtureServeCmd.Flags().StringVar(&fixtureAddr, "addr", "", "Listen address (default from config)")
	fixtureCmd.AddCommand(fixtureServeCmd)
}

func fixtureServe(cmd *cobra.Command, args []string) error {
	addr := fixtureAddr
	if addr == "" {
		addr = settings().Fixture.Addr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := fixture.New(fixture.WithLogger(categoryLogger(logging.CategoryFixture)))
	fmt.Printf("Serving demo dashboard on http://%s/\n", addr)
	return srv.Run(addr)
}
