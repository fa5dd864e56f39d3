package modules

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"buybox_tracker/pkg/probe"
)

type ProbeServer struct {
	ListenAddress string
	AppName       string
	AppVersion    string
}

func (p ProbeServer) Run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		server := probe.NewServer(p.ListenAddress, probe.Options{
			Name:    p.AppName,
			Version: p.AppVersion,
		})

		if err := server.Run(ctx); err != nil {
			return fmt.Errorf("probeServer.Run: %w", err)
		}

		return nil
	})
}
