package financeService

const subscriberBuffer = 16

func (s *financeStore) Subscribe() (<-chan SliceEvent, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan SliceEvent, subscriberBuffer)
	if s.subscribers == nil {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()

		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

// publish never blocks; a subscriber with a full buffer misses the event.
func (s *financeStore) publish(event SliceEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.log.WithField("subscriber", id).Debug("Dropping slice event for slow subscriber")
		}
	}
}

func (s *financeStore) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.subscribers = nil
}
