package hub

import (
	"errors"
	"sync"
	"testing"

	"inventory-hub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSub struct {
	mu   sync.Mutex
	got  []models.Message
	fail bool
}

func (f *fakeSub) Send(msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("connection gone")
	}
	f.got = append(f.got, msg)
	return nil
}

func (f *fakeSub) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func TestPublishDeliversToAllLiveSubscribers(t *testing.T) {
	h := New()
	a, b := &fakeSub{}, &fakeSub{}
	h.Register(a)
	h.Register(b)

	h.Publish(models.Message{Type: models.MessageTypeAlert})

	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
	assert.Equal(t, 2, h.Count())
}

func TestFailedSendUnregistersSubscriber(t *testing.T) {
	h := New()
	live, dead := &fakeSub{}, &fakeSub{fail: true}
	h.Register(live)
	h.Register(dead)

	h.Publish(models.Message{Type: models.MessageTypeProductUpdate})
	require.Equal(t, 1, h.Count())

	h.Publish(models.Message{Type: models.MessageTypeProductUpdate})
	assert.Equal(t, 2, live.received())
}

func TestUnregisterAbsentSubscriberIsNoOp(t *testing.T) {
	h := New()
	s := &fakeSub{}
	h.Unregister(s)
	assert.Equal(t, 0, h.Count())
}

func TestOrderPreservedPerSubscriber(t *testing.T) {
	h := New()
	s := &fakeSub{}
	h.Register(s)

	h.Publish(models.Message{Type: models.MessageTypeNewOrder, Payload: 1})
	h.Publish(models.Message{Type: models.MessageTypeProductUpdate, Payload: 2})
	h.Publish(models.Message{Type: models.MessageTypeAlert, Payload: 3})

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.got, 3)
	assert.Equal(t, 1, s.got[0].Payload)
	assert.Equal(t, 2, s.got[1].Payload)
	assert.Equal(t, 3, s.got[2].Payload)
}

func TestConcurrentRegisterAndPublish(t *testing.T) {
	h := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := &fakeSub{}
			h.Register(s)
			h.Unregister(s)
		}()
		go func() {
			defer wg.Done()
			h.Publish(models.Message{Type: models.MessageTypeChat})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.Count())
}
