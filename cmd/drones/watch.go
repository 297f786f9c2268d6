package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/janinge/drones2/internal/live"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Serve run progress over websocket and Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var broker live.EventBroker
		if cfg.Watch.RedisURL != "" {
			rb, err := live.NewRedisBroker(cfg.Watch.RedisURL)
			if err != nil {
				return err
			}
			broker = rb
		} else {
			broker = live.NewBroker()
		}
		srv := live.NewServer(broker)
		log.Printf("watch server on %s", cfg.Watch.Addr)
		return srv.ListenAndServe(cfg.Watch.Addr)
	},
}
