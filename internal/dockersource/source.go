// Package dockersource feeds container lifecycle events from the docker
// socket into the engine. Events are filtered server-side to the publish
// label (listing) and to the container actions the engine reacts to
// (subscription); labels ride along as event actor attributes, so no extra
// inspect round-trip is needed.
package dockersource

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/localpub/localpub/internal/engine"
	"github.com/localpub/localpub/internal/logger"
)

// Source implements engine.EventSource over the docker API.
type Source struct {
	cli    *client.Client
	logger logger.Logger
}

// New connects to the docker daemon using the standard environment
// (DOCKER_HOST et al.) and verifies the connection with a ping.
func New(ctx context.Context, log logger.Logger) (*Source, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}

	return &Source{cli: cli, logger: log}, nil
}

// Close releases the docker client.
func (s *Source) Close() error {
	return s.cli.Close()
}

// ListRunning returns the running containers that carry the publish label.
func (s *Source) ListRunning(ctx context.Context) ([]engine.Container, error) {
	list, err := s.cli.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("label", "mdns.publish")),
	})
	if err != nil {
		return nil, fmt.Errorf("docker container list: %w", err)
	}

	out := make([]engine.Container, 0, len(list))
	for _, c := range list {
		out = append(out, engine.Container{ID: c.ID, Labels: c.Labels})
	}
	return out, nil
}

// Subscribe streams start/stop/die/destroy container events. The stream is
// not restarted on failure: the error surfaces to the engine and the daemon
// exits, leaving recovery to the host's restart policy.
func (s *Source) Subscribe(ctx context.Context) (<-chan engine.Event, <-chan error) {
	f := filters.NewArgs(
		filters.Arg("type", string(events.ContainerEventType)),
		filters.Arg("event", string(events.ActionStart)),
		filters.Arg("event", string(events.ActionStop)),
		filters.Arg("event", string(events.ActionDie)),
		filters.Arg("event", string(events.ActionDestroy)),
	)
	msgs, errs := s.cli.Events(ctx, events.ListOptions{Filters: f})
	s.logger.Debug("subscribed to docker container events")

	out := make(chan engine.Event)
	errOut := make(chan error, 1)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					return
				}
				errOut <- err
				return
			case msg, ok := <-msgs:
				if !ok {
					errOut <- fmt.Errorf("docker event stream closed")
					return
				}
				ev, ok := translate(msg)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errOut
}

// translate maps a docker event to an engine event. Actor attributes carry
// the container labels on start events.
func translate(msg events.Message) (engine.Event, bool) {
	if msg.Type != events.ContainerEventType {
		return engine.Event{}, false
	}

	switch msg.Action {
	case events.ActionStart:
		return engine.Event{
			Type:   engine.ContainerStart,
			ID:     msg.Actor.ID,
			Labels: msg.Actor.Attributes,
		}, true
	case events.ActionStop, events.ActionDie, events.ActionDestroy:
		return engine.Event{
			Type: engine.ContainerStop,
			ID:   msg.Actor.ID,
		}, true
	default:
		return engine.Event{}, false
	}
}
