package repository

import (
	"os"
	"time"

	"github.com/niveshbansal07/NB-downloader-Backend/internal/pkg/log"
	"github.com/patrickmn/go-cache"
)

// ScratchRegistry tracks live scratch directories with a TTL. Jobs clean
// up after themselves; the registry is a safety net that reaps any
// directory whose job never got to run its cleanup.
type ScratchRegistry struct {
	dirs *cache.Cache
}

func NewScratchRegistry(ttl time.Duration) *ScratchRegistry {
	sweep := ttl / 2
	if sweep < time.Minute {
		sweep = time.Minute
	}

	dirs := cache.New(ttl, sweep)
	dirs.OnEvicted(func(id string, v interface{}) {
		dir, ok := v.(string)
		if !ok {
			return
		}
		if _, err := os.Stat(dir); err != nil {
			return
		}

		log.Logger.Warnw("reaping leaked scratch dir", "job_id", id, "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			log.Logger.Errorw("failed to reap scratch dir", "job_id", id, "dir", dir, "error", err)
		}
	})

	return &ScratchRegistry{
		dirs: dirs,
	}
}

func (r *ScratchRegistry) Track(id, dir string) {
	r.dirs.Set(id, dir, cache.DefaultExpiration)
}

func (r *ScratchRegistry) Forget(id string) {
	r.dirs.Delete(id)
}
