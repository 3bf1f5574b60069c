package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const SubjectPrefix = "wellness.events."

// NATSSink publishes events on wellness.events.<type>.
type NATSSink struct {
	nc  *nats.Conn
	log *zap.Logger
}

func ConnectNATS(url string, log *zap.Logger) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("wellness-api"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSSink{nc: nc, log: log}, nil
}

func Subject(t Type) string {
	return SubjectPrefix + string(t)
}

func (s *NATSSink) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.nc.Publish(Subject(e.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (s *NATSSink) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
