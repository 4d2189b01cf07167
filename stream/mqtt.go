package stream

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/jangala-dev/logflux-relay/config"
	"github.com/jangala-dev/logflux-relay/errcode"
	"github.com/jangala-dev/logflux-relay/message"
)

func init() {
	RegisterAdapter(config.TypeMQTT, newMQTTStream)
}

// mqttStream either publishes inbound messages to a topic or emits one
// message per received publish on a topic (spec.md §4.2a, a domain-stack
// addition beyond the distilled spec). Connection retry is left to the
// paho client's own connect-retry and auto-reconnect, retrying at the
// fixed backoffMin interval; there is no exponential backoff.
type mqttStream struct {
	base
	mcfg config.MQTTConfig
}

func newMQTTStream(cfg config.StreamConfig, tick time.Duration, log logrus.FieldLogger) (Adapter, error) {
	if cfg.TypeConfig.MQTT == nil {
		return nil, &errcode.E{C: errcode.ConfigurationInvalid, Op: "stream.newMQTTStream", Msg: "missing Mqtt payload"}
	}
	mcfg := *cfg.TypeConfig.MQTT
	if mcfg.Direction != "publish" && mcfg.Direction != "subscribe" {
		return nil, &errcode.E{C: errcode.ConfigurationInvalid, Op: "stream.newMQTTStream", Msg: fmt.Sprintf("unknown mqtt direction %q", mcfg.Direction)}
	}
	return &mqttStream{base: newBase(cfg, tick, log), mcfg: mcfg}, nil
}

func (s *mqttStream) Start() error {
	if s.mcfg.Direction == "publish" {
		return s.startPublish()
	}
	return s.startSubscribe()
}

func (s *mqttStream) Stop() error { return s.stopIOAndCore() }

func (s *mqttStream) client() mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(s.mcfg.Broker).
		SetClientID(s.mcfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(backoffMin)
	return mqtt.NewClient(opts)
}

func (s *mqttStream) startPublish() error {
	out, err := s.core.InternalOutputReceiver()
	if err != nil {
		return err
	}
	cl := s.client()

	s.wgIO.Add(1)
	go s.runPublish(out, cl)
	return s.startCore()
}

func (s *mqttStream) runPublish(out <-chan message.Message, cl mqtt.Client) {
	defer s.wgIO.Done()
	defer cl.Disconnect(250)

	if !s.connect(cl) {
		return
	}

	for {
		select {
		case <-s.stopIO:
			return
		case m := <-out:
			payload := formatMQTTPayload(m)
			token := cl.Publish(s.mcfg.Topic, 0, false, payload)
			if token.WaitTimeout(time.Second) && token.Error() != nil {
				s.log.WithError(token.Error()).Warn("mqtt stream: publish failed")
			}
		}
	}
}

func (s *mqttStream) startSubscribe() error {
	in := s.core.InternalInputSender()
	cl := s.client()

	s.wgIO.Add(1)
	go s.runSubscribe(in, cl)
	return s.startCore()
}

func (s *mqttStream) runSubscribe(in chan<- message.Message, cl mqtt.Client) {
	defer s.wgIO.Done()
	defer cl.Disconnect(250)

	if !s.connect(cl) {
		return
	}

	handler := func(_ mqtt.Client, m mqtt.Message) {
		msg := message.New(s.cfg.Name, string(m.Payload()))
		select {
		case in <- msg:
		case <-s.stopIO:
		}
	}
	token := cl.Subscribe(s.mcfg.Topic, 0, handler)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		s.log.WithError(token.Error()).Warn("mqtt stream: subscribe failed")
		return
	}

	<-s.stopIO
}

// formatMQTTPayload renders one outbound message as an MQTT publish
// payload (spec.md §4.2a).
func formatMQTTPayload(m message.Message) string {
	return fmt.Sprintf("'%s' - %d - '%s'", m.Originator, m.TimestampMs, m.Text)
}

const backoffMin = 250 * time.Millisecond

// connect blocks until the client's connect token completes or stop is
// requested. A failed initial connect is logged once and left to the
// client's auto-reconnect; individual retries are not logged.
func (s *mqttStream) connect(cl mqtt.Client) bool {
	token := cl.Connect()
	select {
	case <-s.stopIO:
		return false
	case <-waitToken(token):
	}
	if err := token.Error(); err != nil {
		s.log.WithError(err).Warn("mqtt stream: initial connect failed, relying on auto-reconnect")
	}
	return true
}

func waitToken(t mqtt.Token) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		t.Wait()
		close(done)
	}()
	return done
}
