// Package restaurants loads the restaurant profiles served by the chat
// widget (name, contact, hours, menu) from a YAML file.
package restaurants

import (
	"context"
	"fmt"
	"sync"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/domain"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Directory is an in-memory index of restaurant profiles.
type Directory struct {
	mu       sync.RWMutex
	profiles map[string]*chatdomain.RestaurantProfile
}

// NewDirectory indexes the given profiles by id.
func NewDirectory(profiles ...chatdomain.RestaurantProfile) *Directory {
	d := &Directory{}
	d.replace(profiles)
	return d
}

// Load reads profiles from a YAML (or any viper-supported) file with a
// top-level "restaurants" list. With watch=true the file is re-read on change.
func Load(path string, watch bool, logger *zap.Logger) (*Directory, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read restaurants file %s: %w", path, err)
	}

	profiles, err := decode(v)
	if err != nil {
		return nil, err
	}
	d := NewDirectory(profiles...)

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			profiles, err := decode(v)
			if err != nil {
				logger.Error("restaurants reload failed", zap.String("file", e.Name), zap.Error(err))
				return
			}
			d.replace(profiles)
			logger.Info("restaurants reloaded", zap.Int("count", len(profiles)))
		})
		v.WatchConfig()
	}

	return d, nil
}

// Get returns the profile for restaurantID.
func (d *Directory) Get(_ context.Context, restaurantID string) (*chatdomain.RestaurantProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.profiles[restaurantID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "restaurant", ID: restaurantID}
	}
	return p, nil
}

// IDs returns the ids of every loaded profile.
func (d *Directory) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.profiles))
	for id := range d.profiles {
		ids = append(ids, id)
	}
	return ids
}

func (d *Directory) replace(profiles []chatdomain.RestaurantProfile) {
	index := make(map[string]*chatdomain.RestaurantProfile, len(profiles))
	for i := range profiles {
		p := profiles[i]
		index[p.ID] = &p
	}

	d.mu.Lock()
	d.profiles = index
	d.mu.Unlock()
}

func decode(v *viper.Viper) ([]chatdomain.RestaurantProfile, error) {
	var profiles []chatdomain.RestaurantProfile
	if err := v.UnmarshalKey("restaurants", &profiles); err != nil {
		return nil, fmt.Errorf("decode restaurants: %w", err)
	}
	for i, p := range profiles {
		if p.ID == "" {
			return nil, &domain.ErrValidation{Field: fmt.Sprintf("restaurants[%d].id", i), Message: "required"}
		}
	}
	return profiles, nil
}
