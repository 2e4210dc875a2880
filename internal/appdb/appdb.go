package appdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// App is one entry of the app dictionary keyed by store id or bundle.
type App struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Platform    string   `json:"platform"`
	Rating      float64  `json:"rating,omitempty"`
	Downloads   string   `json:"downloads,omitempty"`
	Price       string   `json:"price,omitempty"`
	Developer   string   `json:"developer,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Entry is an App together with its dictionary id, used in list
// responses.
type Entry struct {
	ID string `json:"id"`
	App
}

// Statistics summarizes the dictionary contents.
type Statistics struct {
	TotalApps  int            `json:"total_apps"`
	Categories map[string]int `json:"categories"`
	Platforms  map[string]int `json:"platforms"`
}

// Database is a JSON-file-backed app dictionary. Reads are served from
// memory; writes persist the whole file.
type Database struct {
	mu     sync.RWMutex
	path   string
	apps   map[string]App
	logger *zap.Logger
}

// Load opens the dictionary at path, seeding defaults when the file is
// missing or unreadable.
func Load(path string, logger *zap.Logger) *Database {
	db := &Database{
		path:   path,
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if jsonErr := json.Unmarshal(data, &db.apps); jsonErr != nil {
			logger.Warn("app dictionary unreadable, seeding defaults",
				zap.String("path", path), zap.Error(jsonErr))
			db.apps = nil
		}
	} else if !os.IsNotExist(err) {
		logger.Warn("app dictionary unreadable, seeding defaults",
			zap.String("path", path), zap.Error(err))
	}

	if db.apps == nil {
		db.apps = defaultApps()
	}
	return db
}

// defaultApps seeds the dictionary for fresh installs.
func defaultApps() map[string]App {
	return map[string]App{
		"997700435": {
			Name:        "Bubble Pop - Shoot Bubbles",
			Category:    "Puzzle Games",
			Subcategory: "Bubble Shooter",
			Platform:    "iOS",
			Rating:      4.2,
			Downloads:   "1M+",
			Price:       "Free",
			Developer:   "Pop Games Studio",
			Description: "Classic bubble shooter game with colorful graphics",
			Tags:        []string{"puzzle", "bubble", "casual", "family"},
		},
		"997362197": {
			Name:        "InShot - Video Editor",
			Category:    "Productivity",
			Subcategory: "Video Editing",
			Platform:    "iOS",
			Rating:      4.5,
			Downloads:   "10M+",
			Price:       "Free",
			Developer:   "InShot Inc.",
			Description: "Professional video editor with filters and effects",
			Tags:        []string{"video", "editing", "social media", "filters"},
		},
		"993090598": {
			Name:        "Ludo King",
			Category:    "Board Games",
			Subcategory: "Classic Board",
			Platform:    "iOS",
			Rating:      4.1,
			Downloads:   "50M+",
			Price:       "Free",
			Developer:   "Gametion Technologies",
			Description: "Classic Ludo board game with multiplayer",
			Tags:        []string{"board", "multiplayer", "classic", "family"},
		},
		"Wt0m9nSXAGYByPqs": {
			Name:        "Road Gold",
			Category:    "Racing Games",
			Subcategory: "Arcade Racing",
			Platform:    "Android",
			Rating:      4.3,
			Downloads:   "5M+",
			Price:       "Free",
			Developer:   "Racing Studio",
			Description: "High-speed racing with gold collection",
			Tags:        []string{"racing", "arcade", "speed", "gold"},
		},
	}
}

// Get returns the app with the given id.
func (db *Database) Get(id string) (App, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	app, ok := db.apps[id]
	return app, ok
}

// List returns every entry, sorted by id for stable output.
func (db *Database) List() []Entry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	entries := make([]Entry, 0, len(db.apps))
	for id, app := range db.apps {
		entries = append(entries, Entry{ID: id, App: app})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// ByCategory returns all entries in the given category.
func (db *Database) ByCategory(category string) []Entry {
	var out []Entry
	for _, e := range db.List() {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (db *Database) Categories() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, app := range db.apps {
		seen[app.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Search matches the query against name, description and tags,
// case-insensitively.
func (db *Database) Search(query string) []Entry {
	q := strings.ToLower(query)
	var out []Entry
	for _, e := range db.List() {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			strings.Contains(strings.ToLower(strings.Join(e.Tags, " ")), q) {
			out = append(out, e)
		}
	}
	return out
}

// Upsert adds or replaces an app and persists the dictionary.
func (db *Database) Upsert(id string, app App) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.apps[id] = app
	return db.saveLocked()
}

// Statistics counts apps per category and platform.
func (db *Database) Statistics() Statistics {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := Statistics{
		TotalApps:  len(db.apps),
		Categories: make(map[string]int),
		Platforms:  make(map[string]int),
	}
	for _, app := range db.apps {
		category := app.Category
		if category == "" {
			category = "Unknown"
		}
		platform := app.Platform
		if platform == "" {
			platform = "Unknown"
		}
		stats.Categories[category]++
		stats.Platforms[platform]++
	}
	return stats
}

func (db *Database) saveLocked() error {
	data, err := json.MarshalIndent(db.apps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal app dictionary: %w", err)
	}
	if dir := filepath.Dir(db.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create app dictionary dir: %w", err)
		}
	}
	if err := os.WriteFile(db.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write app dictionary: %w", err)
	}
	return nil
}
