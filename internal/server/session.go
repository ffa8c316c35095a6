package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-reform/pkg/dispatch"
	"github.com/goliatone/go-reform/pkg/engine"
	"github.com/goliatone/go-reform/pkg/events"
	"github.com/goliatone/go-reform/pkg/progress"
)

// session is one live form: its engine, event bus and command queue.
type session struct {
	id     string
	engine *engine.Engine
	store  *progress.Store
	bus    *events.Bus
	queue  *dispatch.Queue
	cancel context.CancelFunc
	done   chan struct{}
}

// apply runs cmd on the session queue and completes any page transition
// before returning, so callers observe the entered page.
func (sess *session) apply(ctx context.Context, cmd dispatch.Command) (bool, error) {
	applied, err := sess.queue.Do(ctx, cmd)
	sess.engine.Flush()
	return applied, err
}

func (sess *session) stop() {
	sess.cancel()
	<-sess.done
	sess.engine.Detach()
}

// open builds a session around id. payload may be empty; a saved snapshot
// for id takes precedence over it.
func (s *Server) open(ctx context.Context, id string, payload []byte) (*session, error) {
	store, err := progress.NewStore(s.storage, s.storeKey(id), progress.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	logger := s.logger.With().Str("session", id).Logger()

	bus := events.NewBus(events.WithLogger(logger))
	for _, fn := range s.handlers {
		bus.Subscribe(fn)
	}

	eng, err := engine.New(store,
		engine.WithLogger(logger),
		engine.WithEmitter(bus),
		engine.WithTransitionDelay(s.delay),
		engine.WithSource(id),
	)
	if err != nil {
		return nil, err
	}
	eng.Attach(ctx, payload)

	dispatcher, err := dispatch.New(eng, dispatch.WithLogger(logger), dispatch.WithFieldPrefix(s.fieldPrefix))
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     id,
		engine: eng,
		store:  store,
		bus:    bus,
		queue:  dispatch.NewQueue(dispatcher, defaultQueueSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(sess.done)
		_ = sess.queue.Run(runCtx)
	}()
	return sess, nil
}

func (s *Server) create(ctx context.Context, payload []byte) (*session, error) {
	id := uuid.NewString()
	sess, err := s.open(ctx, id, payload)
	if err != nil {
		return nil, fmt.Errorf("server: open session: %w", err)
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.logger.Info().Str("session", id).Int("pages", sess.engine.State().PageCount).Msg("session created")
	return sess, nil
}

// lookup returns a live session, reviving it from saved progress when the
// process has restarted since it was created.
func (s *Server) lookup(ctx context.Context, id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	probe, err := progress.NewStore(s.storage, s.storeKey(id))
	if err != nil {
		return nil, err
	}
	if _, saved := probe.Load(ctx); !saved {
		return nil, ErrSessionNotFound
	}

	revived, err := s.open(ctx, id, nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		revived.stop()
		return existing, nil
	}
	s.sessions[id] = revived
	s.mu.Unlock()
	s.logger.Info().Str("session", id).Msg("session restored from saved progress")
	return revived, nil
}

// remove stops the session and clears its saved progress.
func (s *Server) remove(ctx context.Context, id string) error {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	sess.stop()
	if err := sess.store.Clear(ctx); err != nil {
		return fmt.Errorf("server: clear progress: %w", err)
	}
	s.logger.Info().Str("session", id).Msg("session deleted")
	return nil
}
