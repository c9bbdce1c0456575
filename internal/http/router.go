package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Profiles      *ProfileHandler
	Events        *EventHandler
	RSVPs         *RSVPHandler
	Invitations   *InvitationHandler
	Notifications *NotificationHandler
	Media         *MediaHandler
	Schedule      *ScheduleHandler
	// Authenticate guards every route except login and the schedule helpers.
	Authenticate func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.Authenticate == nil {
			return h
		}
		return cfg.Authenticate(h)
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if cfg.Auth != nil {
		mux.HandleFunc("/auth/code", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.RequestCode(w, r)
		})
		mux.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Verify(w, r)
		})
		mux.Handle("/auth/refresh", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Refresh(w, r)
		}))
		mux.Handle("/auth/session", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		}))
	}

	if cfg.Schedule != nil {
		mux.HandleFunc("/schedule/slots", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.Slots(w, r)
		})
		mux.HandleFunc("/schedule/validate", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Schedule.Validate(w, r)
		})
	}

	if cfg.Profiles != nil {
		mux.Handle("/me", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Profiles.GetMe(w, r)
			case http.MethodPut:
				cfg.Profiles.UpdateMe(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		}))
		mux.Handle("/users", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Profiles.Search(w, r)
		}))
		mux.Handle("/users/", protect(func(w http.ResponseWriter, r *http.Request) {
			id := trimmedPath(r.URL.Path, "/users/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Profiles.Get(w, r, id)
		}))
	}

	if cfg.Events != nil {
		mux.Handle("/events", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/events/", protect(func(w http.ResponseWriter, r *http.Request) {
			routeEvent(cfg, w, r)
		}))
	}

	if cfg.Invitations != nil {
		mux.Handle("/invitations", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Invitations.List(w, r)
		}))
		mux.Handle("/invitations/", protect(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(trimmedPath(r.URL.Path, "/invitations/"), "/")
			if len(parts) != 2 || parts[0] == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			switch parts[1] {
			case "accept":
				cfg.Invitations.Accept(w, r, parts[0])
			case "decline":
				cfg.Invitations.Decline(w, r, parts[0])
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Notifications != nil {
		mux.Handle("/notifications", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Notifications.List(w, r)
		}))
		mux.Handle("/notifications/", protect(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(trimmedPath(r.URL.Path, "/notifications/"), "/")
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			switch {
			case len(parts) == 1 && parts[0] == "read":
				cfg.Notifications.MarkAllRead(w, r)
			case len(parts) == 2 && parts[0] != "" && parts[1] == "read":
				cfg.Notifications.MarkRead(w, r, parts[0])
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Media != nil {
		mux.Handle("/media/images", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Media.UploadImage(w, r)
		}))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// routeEvent dispatches /events/{id}[/action] and /events/slug/{slug}.
func routeEvent(cfg RouterConfig, w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(trimmedPath(r.URL.Path, "/events/"), "/")
	if parts[0] == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}

	if parts[0] == "slug" {
		if len(parts) != 2 || parts[1] == "" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Events.GetBySlug(w, r, parts[1])
		return
	}

	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			cfg.Events.Get(w, r, id)
		case http.MethodPut:
			cfg.Events.Update(w, r, id)
		case http.MethodDelete:
			cfg.Events.Delete(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
		return
	}

	switch parts[1] {
	case "publish":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Events.Publish(w, r, id)
	case "calendar.ics":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Events.Calendar(w, r, id)
	case "rsvp":
		if cfg.RSVPs == nil {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			cfg.RSVPs.Get(w, r, id)
		case http.MethodPut:
			cfg.RSVPs.Put(w, r, id)
		case http.MethodDelete:
			cfg.RSVPs.Delete(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case "guests":
		if cfg.RSVPs == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.RSVPs.Guests(w, r, id)
	case "invitations":
		if cfg.Invitations == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Invitations.Create(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
