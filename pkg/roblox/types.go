// Package roblox talks to the Roblox web APIs and launches the game client.
//
// It covers the three concerns the rest of the tool needs from Roblox:
// presence lookups (is this user in a game, and in which server instance),
// identity resolution (username to numeric user id, token validation), and
// game launching (auth ticket plus protocol URL handed to a launcher).
//
// All calls pass through a shared RateLimiter so concurrent monitors cannot
// burst past the API rate limit.
package roblox

import (
	"context"
	"time"
)

// Presence type values returned by the presence API.
const (
	PresenceOffline = 0
	PresenceOnline  = 1
	PresenceInGame  = 2
	PresenceStudio  = 3
)

// Presence is one user's presence reading.
//
// A nil *Presence with a non-nil error means the reading could not be taken;
// callers must treat that differently from a successful "offline" reading.
type Presence struct {
	// UserID is the numeric Roblox user id the reading is for.
	UserID int64

	// Type is the raw userPresenceType value.
	Type int

	// LastLocation is the human-readable location string.
	LastLocation string

	// PlaceID is the place the user is in, in-game readings only.
	PlaceID int64

	// RootPlaceID is the root place of the experience, in-game readings only.
	RootPlaceID int64

	// JobID is the server instance id, in-game readings only. Captured so a
	// rejoin can target the same server.
	JobID string
}

// InGame reports whether the reading shows the user inside a game.
func (p *Presence) InGame() bool {
	return p != nil && p.Type == PresenceInGame
}

// AuthenticatedUser is the identity behind a session token.
type AuthenticatedUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// LaunchRequest describes one game launch.
type LaunchRequest struct {
	// Username is the account being launched, for logging only.
	Username string

	// SessionToken is the .ROBLOSECURITY value used to mint the auth ticket.
	SessionToken string

	// PlaceID is the place to join. Zero launches to the home screen.
	PlaceID int64

	// PrivateServer is the private-server link code, digits only. Takes
	// precedence over JobID.
	PrivateServer string

	// JobID targets a specific server instance.
	JobID string
}

// Server is one public server instance of a place.
type Server struct {
	ID         string  `json:"id"`
	Playing    int     `json:"playing"`
	MaxPlayers int     `json:"maxPlayers"`
	FPS        float64 `json:"fps"`
	Ping       int     `json:"ping"`
}

// Client is the Roblox API surface used by the monitors and the CLI.
type Client interface {
	// Presence returns the current presence reading for a user. The token
	// authenticates the request; presence of other users is visible to any
	// logged-in account.
	Presence(ctx context.Context, userID int64, token string) (*Presence, error)

	// ResolveUserID maps a username to its numeric user id, consulting the
	// persistent cache first. Returns ErrUserNotFound for unknown names.
	ResolveUserID(ctx context.Context, username string) (int64, error)

	// Validate checks whether a session token is still accepted, returning
	// the authenticated identity. ErrUnauthenticated when expired or revoked.
	Validate(ctx context.Context, token string) (*AuthenticatedUser, error)

	// AuthTicket mints a one-time game authentication ticket for the token.
	AuthTicket(ctx context.Context, token string) (string, error)

	// Servers returns a page of joinable public servers for a place,
	// emptiest first.
	Servers(ctx context.Context, placeID int64) ([]Server, error)

	// SmallestServer returns the joinable public server with the fewest
	// players for a place.
	SmallestServer(ctx context.Context, placeID int64) (*Server, error)

	// Launch mints an auth ticket and starts the game client for a request.
	Launch(ctx context.Context, req LaunchRequest) error

	// WipeCache removes every persisted username to user-id mapping.
	WipeCache() error

	// Close releases the client's resources, including the id cache.
	Close() error
}

// Config contains client configuration.
type Config struct {
	// MinRequestInterval is the floor between consecutive API calls.
	// Default: 6s.
	MinRequestInterval time.Duration

	// RequestTimeout bounds each HTTP request. Default: 5s.
	RequestTimeout time.Duration

	// MaxRetries for transient failures on id resolution. Default: 3.
	MaxRetries int

	// CachePath is the bbolt file for the username to user-id cache.
	// Empty disables persistence.
	CachePath string
}
