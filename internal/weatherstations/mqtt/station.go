// Package mqtt receives weewx-style loop packets and archive records from
// an MQTT broker.
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/interfaces"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/weatherstations"
	"github.com/chrissnell/gaugedata/pkg/config"
)

const (
	defaultClientID  = "gaugedata"
	subscribeTimeout = 5 * time.Second
	disconnectQuiesc = 250 // milliseconds
)

// Station subscribes to a topic and hands every decoded packet to a sink.
type Station struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
	config config.MQTTData
	sink   interfaces.PacketSink
	logger *zap.SugaredLogger
	client paho.Client
}

var _ weatherstations.WeatherStation = (*Station)(nil)

// NewStation returns an MQTT station delivering to sink. The client id
// gets a random suffix so that several instances can share a broker.
func NewStation(ctx context.Context, wg *sync.WaitGroup, mc config.MQTTData, sink interfaces.PacketSink, logger *zap.SugaredLogger) *Station {
	stationCtx, cancel := context.WithCancel(ctx)

	s := &Station{
		ctx:    stationCtx,
		cancel: cancel,
		wg:     wg,
		config: mc,
		sink:   sink,
		logger: logger.Named("mqtt").With("broker", mc.Broker, "topic", mc.Topic),
	}

	clientID := mc.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(mc.Broker)
	opts.SetClientID(clientID + "-" + uuid.NewString()[:8])
	if mc.Username != "" {
		opts.SetUsername(mc.Username)
		opts.SetPassword(mc.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Subscriptions do not survive a clean session, so subscribe on every
	// connect.
	opts.SetOnConnectHandler(func(c paho.Client) {
		s.logger.Info("connected to MQTT broker")
		if err := s.subscribe(c); err != nil {
			s.logger.Errorf("could not subscribe: %v", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.logger.Warnf("MQTT connection lost: %v", err)
	})

	s.client = paho.NewClient(opts)
	return s
}

// StationName returns the broker and topic this station reads.
func (s *Station) StationName() string {
	return fmt.Sprintf("mqtt %s %s", s.config.Broker, s.config.Topic)
}

// StartWeatherStation connects to the broker. Connection retries happen in
// the background until the station is stopped.
func (s *Station) StartWeatherStation() error {
	s.logger.Info("starting MQTT station")
	s.client.Connect()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
		s.logger.Info("disconnecting from MQTT broker")
		s.client.Disconnect(disconnectQuiesc)
	}()
	return nil
}

// StopWeatherStation disconnects from the broker.
func (s *Station) StopWeatherStation() error {
	s.cancel()
	return nil
}

func (s *Station) subscribe(c paho.Client) error {
	token := c.Subscribe(s.config.Topic, s.config.QoS, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Payload())
	})
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscribe timeout for topic %s", s.config.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.config.Topic, err)
	}
	s.logger.Infof("subscribed with qos %d", s.config.QoS)
	return nil
}

func (s *Station) handleMessage(payload []byte) {
	p, skipped, err := decodePacket(payload)
	if err != nil {
		s.logger.Warnf("discarding message: %v", err)
		return
	}
	if len(skipped) > 0 {
		s.logger.Debugf("ignoring observations without a unit group: %v", skipped)
	}

	if p.Kind == types.Archive {
		err = s.sink.NewArchiveRecord(p)
	} else {
		err = s.sink.NewLoopPacket(p)
	}
	if err != nil {
		s.logger.Warnf("%s packet (%d) not queued: %v", p.Kind, p.Timestamp.Unix(), err)
	}
}
