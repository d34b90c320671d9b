package store

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Recovery modes for the schema_recoveries counter.
const (
	RecoveryRepair   = "repair"
	RecoveryRecreate = "recreate"
)

// Skip reasons for the playlist_items_skipped counter.
const (
	SkipDuplicate = "duplicate"
	SkipFailed    = "failed"
)

// Metrics holds the catalog counters.
type Metrics struct {
	SchemaRecoveries *prometheus.CounterVec
	SongDuplicates   prometheus.Counter
	PlaylistSkipped  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SchemaRecoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "songbook",
			Name:      "schema_recoveries_total",
			Help:      "Schema integrity recoveries by mode (repair or recreate).",
		}, []string{"mode"}),
		SongDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "songbook",
			Name:      "song_duplicates_total",
			Help:      "Song inserts ignored because the file path already existed.",
		}),
		PlaylistSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "songbook",
			Name:      "playlist_items_skipped_total",
			Help:      "Playlist additions skipped, by reason.",
		}, []string{"reason"}),
	}

	var err error
	if m.SchemaRecoveries, err = register(reg, m.SchemaRecoveries); err != nil {
		return nil, err
	}
	if m.SongDuplicates, err = register(reg, m.SongDuplicates); err != nil {
		return nil, err
	}
	if m.PlaylistSkipped, err = register(reg, m.PlaylistSkipped); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under the
// same name so several stores can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
