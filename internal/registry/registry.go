package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event событие для push-доставки подключённому пользователю.
// Порядок гарантируется только в рамках одного соединения,
// подтверждений доставки нет.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Conn одно живое соединение пользователя
type Conn interface {
	Send(event Event) error
	Alive() bool
	Close() error
}

// Registry реестр соединений по пользователям: добавление при
// подключении, удаление при отключении или ошибке доставки.
// Не растёт за пределами времени жизни подключённых акторов.
type Registry struct {
	mu     sync.RWMutex
	conns  map[int64]map[string]Conn
	logger *zap.Logger
}

func New(logger *zap.Logger) *Registry {
	return &Registry{
		conns:  make(map[int64]map[string]Conn),
		logger: logger,
	}
}

// Register добавляет соединение пользователя и возвращает его ID
func (r *Registry) Register(userID int64, conn Conn) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] == nil {
		r.conns[userID] = make(map[string]Conn)
	}
	r.conns[userID][id] = conn

	return id
}

// Unregister удаляет соединение пользователя
func (r *Registry) Unregister(userID int64, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(userID, connID)
}

// Notify отправляет событие во все соединения пользователя.
// Ошибка доставки закрывает и выбрасывает соединение, сама отправка
// best-effort: отсутствие соединений — не ошибка.
func (r *Registry) Notify(userID int64, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, conn := range r.conns[userID] {
		if err := conn.Send(event); err != nil {
			r.logger.Warn("Dropping dead connection",
				zap.Int64("user_id", userID),
				zap.String("conn_id", id),
				zap.Error(err),
			)
			conn.Close()
			r.remove(userID, id)
		}
	}
}

// Sweep выбрасывает умершие соединения, возвращает число удалённых
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for userID, conns := range r.conns {
		for id, conn := range conns {
			if !conn.Alive() {
				conn.Close()
				r.remove(userID, id)
				removed++
			}
		}
	}

	return removed
}

// Len возвращает общее число живых соединений
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, conns := range r.conns {
		n += len(conns)
	}
	return n
}

// Close закрывает все соединения и очищает реестр
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conns := range r.conns {
		for _, conn := range conns {
			conn.Close()
		}
	}
	r.conns = make(map[int64]map[string]Conn)
}

// remove вызывается под взятым mu
func (r *Registry) remove(userID int64, connID string) {
	delete(r.conns[userID], connID)
	if len(r.conns[userID]) == 0 {
		delete(r.conns, userID)
	}
}
