// internal/app/bootstrap/deps.go
package bootstrap

import (
	"time"

	"go.uber.org/zap"

	"github.com/villagehq/village/internal/app/session"
	attendeestore "github.com/villagehq/village/internal/app/store/attendees"
	chatmemberstore "github.com/villagehq/village/internal/app/store/chatmembers"
	chatmessagestore "github.com/villagehq/village/internal/app/store/chatmessages"
	connectionstore "github.com/villagehq/village/internal/app/store/connections"
	"github.com/villagehq/village/internal/app/store/docstore"
	chatstore "github.com/villagehq/village/internal/app/store/groupchats"
	pinstore "github.com/villagehq/village/internal/app/store/pins"
	userstore "github.com/villagehq/village/internal/app/store/users"
	"github.com/villagehq/village/internal/app/system/workers"
)

// Deps holds the wired back-end dependencies of the app: the document store,
// one repository per entity family, the session layer, and the background
// worker. Route handlers receive this struct; extend it as the app evolves.
type Deps struct {
	Store *docstore.Store

	Users        *userstore.Store
	Pins         *pinstore.Store
	Attendees    *attendeestore.Store
	Connections  *connectionstore.Store
	Chats        *chatstore.Store
	ChatMembers  *chatmemberstore.Store
	ChatMessages *chatmessagestore.Store

	// Sessions backs WebSessions; handlers normally go through WebSessions
	// with SessionName as the cookie name.
	Sessions    *session.Cache
	WebSessions *session.WebStore
	SessionName string

	// UpcomingHorizon bounds Pins.GetUpcoming queries issued by handlers.
	UpcomingHorizon time.Duration

	Expiry *workers.PinExpiry
}

// BuildDeps opens the document store and wires every repository, the session
// layer, and the expiry worker from cfg. The worker is built but not
// started; the caller owns its Start/Stop lifecycle.
func BuildDeps(cfg AppConfig, logger *zap.Logger) (*Deps, error) {
	store, err := docstore.Open(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	attendees := attendeestore.New(store)
	pins := pinstore.New(store, attendees)
	connections := connectionstore.New(store)

	sessions, err := session.NewCache(store, logger)
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}

	return &Deps{
		Store:           store,
		Users:           userstore.New(store),
		Pins:            pins,
		Attendees:       attendees,
		Connections:     connections,
		Chats:           chatstore.New(store),
		ChatMembers:     chatmemberstore.New(store),
		ChatMessages:    chatmessagestore.New(store),
		Sessions:        sessions,
		WebSessions:     session.NewWebStore(sessions, []byte(cfg.SessionKey)),
		SessionName:     cfg.SessionName,
		UpcomingHorizon: cfg.UpcomingHorizon,
		Expiry:          workers.NewPinExpiry(pins, attendees, connections, logger, cfg.ScanInterval),
	}, nil
}

// Close releases the session layer and the document store. Stop the expiry
// worker first if it was started.
func (d *Deps) Close() error {
	d.Sessions.Close()
	return d.Store.Close()
}
