package pubsub

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/consol-protocol/consold/internal/core/ports"
	"github.com/consol-protocol/consold/pkg/circuitbreaker"
)

// AnyTopic subscribes a webhook to every event published by the engine.
const AnyTopic = "*"

const notifyTimeout = 15 * time.Second

type service struct {
	lock        sync.RWMutex
	subs        map[string]Subscription
	subsByTopic map[string][]string

	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewService returns a webhook-based implementation of the SecurePubSub
// port keeping its subscriptions in memory.
func NewService() ports.SecurePubSub {
	return &service{
		subs:        make(map[string]Subscription),
		subsByTopic: make(map[string][]string),
		httpClient:  &http.Client{Timeout: notifyTimeout},
		cb:          circuitbreaker.New("webhook-notifier"),
	}
}

func (ws *service) Subscribe(topic, endpoint, secret string) (string, error) {
	sub, err := NewSubscription(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	ws.lock.Lock()
	defer ws.lock.Unlock()

	ws.subs[sub.ID] = *sub
	ws.subsByTopic[topic] = append(ws.subsByTopic[topic], sub.ID)
	return sub.ID, nil
}

func (ws *service) Unsubscribe(_, id string) error {
	ws.lock.Lock()
	defer ws.lock.Unlock()

	sub, ok := ws.subs[id]
	if !ok {
		return fmt.Errorf("webhook not found")
	}
	delete(ws.subs, id)

	ids := ws.subsByTopic[sub.Event]
	for i, subID := range ids {
		if subID == id {
			ws.subsByTopic[sub.Event] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (ws *service) ListSubscriptionsForTopic(topic string) []ports.Subscription {
	ws.lock.RLock()
	defer ws.lock.RUnlock()

	return ws.subscriptionsForTopic(topic).toPortable()
}

func (ws *service) Publish(topic string, message string) error {
	ws.lock.RLock()
	subs := ws.subscriptionsForTopic(topic)
	ws.lock.RUnlock()

	eg := &errgroup.Group{}
	for i := range subs {
		sub := subs[i]
		eg.Go(func() error { return ws.notify(sub, message) })
	}
	return eg.Wait()
}

// subscriptionsForTopic returns the subs for the topic plus those
// subscribed for any topic, sorted by id. An empty topic returns every
// subscription. Callers must hold the lock.
func (ws *service) subscriptionsForTopic(topic string) subscriptions {
	if topic == "" {
		subs := make(subscriptions, 0, len(ws.subs))
		for _, sub := range ws.subs {
			subs = append(subs, sub)
		}
		sort.SliceStable(subs, func(i, j int) bool {
			return subs[i].ID < subs[j].ID
		})
		return subs
	}

	ids := make([]string, 0, len(ws.subsByTopic[topic]))
	ids = append(ids, ws.subsByTopic[topic]...)
	if topic != AnyTopic {
		ids = append(ids, ws.subsByTopic[AnyTopic]...)
	}

	subs := make(subscriptions, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, ws.subs[id])
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
	return subs
}

// notify POSTs the payload to the subscription's endpoint through the
// circuit breaker, signing a bearer token with the subscription's secret
// when it has one. Any status other than 200 counts as a failure.
func (ws *service) notify(sub Subscription, payload string) error {
	_, err := ws.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequest(
			http.MethodPost, sub.Endpoint, strings.NewReader(payload),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if sub.IsSecured() {
			token := jwt.New(jwt.SigningMethodHS256)
			tokenString, _ := token.SignedString([]byte(sub.Secret))
			req.Header.Set(
				"Authorization", fmt.Sprintf("Bearer %s", tokenString),
			)
		}

		res, err := ws.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			buf, _ := io.ReadAll(res.Body)
			return nil, fmt.Errorf(
				"endpoint %s replied with status %d: %s",
				sub.Endpoint, res.StatusCode, string(buf),
			)
		}
		return nil, nil
	})

	return err
}
