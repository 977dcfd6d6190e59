package player

import (
	"fmt"

	"github.com/PizzaHomicide/haven/internal/config"
	"github.com/PizzaHomicide/haven/internal/log"
)

// PlayerType defines the type of media player to use
type PlayerType string

const (
	// PlayerTypeMPV represents the MPV player
	PlayerTypeMPV PlayerType = "mpv"
	// PlayerTypeCustom is any executable that speaks mpv's IPC protocol, e.g. a wrapper script
	PlayerTypeCustom PlayerType = "custom"
)

// CreatePlayer creates the media player selected in the configuration
func CreatePlayer(cfg config.PlayerConfig) (*MPV, error) {
	log.Info("Creating video player", "type", cfg.Type)

	switch PlayerType(cfg.Type) {
	case PlayerTypeMPV, "":
		return NewMPV(cfg), nil
	case PlayerTypeCustom:
		if cfg.Path == "" {
			return nil, fmt.Errorf("custom player requires player.path")
		}
		return NewMPV(cfg), nil
	default:
		log.Warn("Unknown player type, falling back to mpv", "type", cfg.Type)
		return NewMPV(cfg), nil
	}
}
