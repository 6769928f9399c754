package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/internal/events"
	"github.com/jamongadejoa28/sassmall-sub003/internal/events/mocks"
)

type ReplayerTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	broker   *mocks.MockBroker
	replayer *events.Replayer
}

func (s *ReplayerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.broker = mocks.NewMockBroker(s.ctrl)
	s.replayer = events.NewReplayer(s.broker, logrus.New()).SetTopicPrefix("test.").SetMaxReplays(2)
}

func TestReplayerSuite(t *testing.T) {
	suite.Run(t, new(ReplayerTestSuite))
}

func deadLetter(replays string) events.Message {
	headers := map[string]string{
		events.HeaderEventType:     string(events.EventOrderCancelled),
		events.HeaderOriginalTopic: "test.order-events",
		events.HeaderLastError:     "timeout",
		events.HeaderRetryCount:    "3",
	}
	if replays != "" {
		headers[events.HeaderReplayCount] = replays
	}
	return events.Message{Topic: "test.dead-letter", Key: "evt-1", Body: []byte(`{}`), Headers: headers}
}

// TestHandle_Replays Тест на возврат сообщения в исходный топик.
func (s *ReplayerTestSuite) TestHandle_Replays() {
	s.broker.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg events.Message) error {
		s.Equal("test.order-events", msg.Topic)
		s.Equal("evt-1", msg.Key)
		s.Equal("1", msg.Headers[events.HeaderReplayCount])
		s.NotContains(msg.Headers, events.HeaderOriginalTopic)
		return nil
	})

	s.NoError(s.replayer.Handle(s.T().Context(), deadLetter("")))
}

// TestHandle_Parked Тест на то, что сообщение сверх лимита повторов не публикуется.
func (s *ReplayerTestSuite) TestHandle_Parked() {
	s.NoError(s.replayer.Handle(s.T().Context(), deadLetter("2")))
}

// TestHandle_ReplayFailed Тест на возврат сообщения в dead-letter с увеличенным счетчиком.
func (s *ReplayerTestSuite) TestHandle_ReplayFailed() {
	gomock.InOrder(
		s.broker.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("still down")),
		s.broker.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg events.Message) error {
			s.Equal("test.dead-letter", msg.Topic)
			s.Equal("2", msg.Headers[events.HeaderReplayCount])
			s.Equal("still down", msg.Headers[events.HeaderLastError])
			s.Equal("test.order-events", msg.Headers[events.HeaderOriginalTopic])
			return nil
		}),
	)

	s.NoError(s.replayer.Handle(s.T().Context(), deadLetter("1")))
}

// TestHandle_NoOriginalTopic Тест на пропуск сообщения без исходного топика.
func (s *ReplayerTestSuite) TestHandle_NoOriginalTopic() {
	msg := deadLetter("")
	delete(msg.Headers, events.HeaderOriginalTopic)

	s.NoError(s.replayer.Handle(s.T().Context(), msg))
}
