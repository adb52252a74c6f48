// Command loop-simulator publishes synthetic weewx-style loop packets and
// archive records to an MQTT topic for testing gaugedata without a station.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/chrissnell/gaugedata/internal/log"
)

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	topic := flag.String("topic", "weather/loop", "MQTT topic to publish to")
	interval := flag.Duration("interval", 2500*time.Millisecond, "time between loop packets")
	archive := flag.Duration("archive", 5*time.Minute, "time between archive records")
	lostContact := flag.Bool("lost-contact", false, "report lost sensor contact in archive records")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := paho.NewClientOptions()
	opts.AddBroker(*broker)
	opts.SetClientID("loop-simulator-" + uuid.NewString()[:8])
	opts.SetConnectRetry(true)
	opts.SetAutoReconnect(true)
	client := paho.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(10*time.Second) && token.Error() != nil {
		log.Errorf("could not connect to %s: %v", *broker, token.Error())
		os.Exit(1)
	}
	defer client.Disconnect(250)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Infof("publishing loop packets to %s on %s every %v", *topic, *broker, *interval)
	run(ctx, client, *topic, *interval, *archive, *lostContact)
}

func run(ctx context.Context, client paho.Client, topic string, interval, archive time.Duration, lostContact bool) {
	emu := NewWeatherEmulator(time.Now().UnixNano())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	nextArchive := time.Now().Truncate(archive).Add(archive)

	for {
		select {
		case <-ctx.Done():
			log.Info("simulator stopped")
			return
		case now := <-ticker.C:
			publish(client, topic, emu.LoopPacket(now))
			if !now.Before(nextArchive) {
				publish(client, topic, emu.ArchiveRecord(nextArchive, archive, lostContact))
				nextArchive = nextArchive.Add(archive)
			}
		}
	}
}

func publish(client paho.Client, topic string, packet map[string]interface{}) {
	payload, err := json.Marshal(packet)
	if err != nil {
		log.Errorf("could not encode packet: %v", err)
		return
	}
	token := client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		log.Warnf("publish to %s failed: %v", topic, token.Error())
		return
	}
	log.Debugf("published %s", payload)
}
