package vehicle

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Subscriber receives vehicle events from an MQTT broker.
type Subscriber struct {
	client paho.Client
	events chan Event
	now    func() time.Time
}

// NewSubscriber connects to the broker and subscribes to the ignition
// and climate topics. Subscriptions are re-established automatically on
// reconnect.
func NewSubscriber(broker, ignitionTopic, climateTopic string) (*Subscriber, error) {
	s := &Subscriber{
		events: make(chan Event, 16),
		now:    time.Now,
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("seat-heater-vehicle").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c paho.Client) {
			// Runs on first connect and every reconnect.
			if token := c.Subscribe(ignitionTopic, 1, s.onIgnition); token.Wait() && token.Error() != nil {
				log.Printf("vehicle: subscribe %s: %v", ignitionTopic, token.Error())
			}
			if token := c.Subscribe(climateTopic, 0, s.onClimate); token.Wait() && token.Error() != nil {
				log.Printf("vehicle: subscribe %s: %v", climateTopic, token.Error())
			}
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("vehicle: connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("vehicle: connect to broker: %w", err)
	}

	s.client = client
	return s, nil
}

func (s *Subscriber) onIgnition(_ paho.Client, msg paho.Message) {
	state, err := ParseIgnition(msg.Payload())
	if err != nil {
		log.Printf("vehicle: %v", err)
		return
	}
	s.deliver(Event{Time: s.now(), Ignition: &state})
}

func (s *Subscriber) onClimate(_ paho.Client, msg paho.Message) {
	sample, err := ParseClimate(msg.Payload())
	if err != nil {
		log.Printf("vehicle: %v", err)
		return
	}
	s.deliver(Event{Time: s.now(), Climate: &sample})
}

// deliver pushes an event without blocking the paho callback. If the
// run loop has fallen behind, the oldest event is dropped: the loop
// combines latest values anyway, so only the newest matter.
func (s *Subscriber) deliver(e Event) {
	for {
		select {
		case s.events <- e:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// Events returns the event channel.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// IsConnected reports whether the MQTT connection is up.
func (s *Subscriber) IsConnected() bool {
	return s.client != nil && s.client.IsConnected()
}

// Close disconnects from the broker.
func (s *Subscriber) Close() error {
	if s.client != nil {
		s.client.Disconnect(1000)
	}
	return nil
}
