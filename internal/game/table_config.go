package game

import (
	"github.com/blinko/backend/internal/config"
)

// PhysicsConfigFrom maps the service configuration onto a PhysicsConfig,
// reading the optional pay table file.
func PhysicsConfigFrom(cfg *config.Config) (PhysicsConfig, error) {
	pc := DefaultPhysicsConfig()
	pc.Width = cfg.PlayfieldWidth
	pc.Height = cfg.PlayfieldHeight
	pc.Rows = cfg.PegRows
	pc.SpacingX = cfg.PegSpacingX
	pc.SpacingY = cfg.PegSpacingY
	pc.GravityX = cfg.GravityX
	pc.GravityY = cfg.GravityY
	pc.MaxSpeed = cfg.MaxSpeed
	pc.InitialSpeed = cfg.InitialSpeed
	pc.Restitution = cfg.Restitution
	pc.WallRestitution = cfg.WallRestitution
	pc.BallRadius = cfg.BallRadius
	pc.PegRadius = cfg.PegRadius
	pc.ExitMargin = cfg.ExitMargin
	pc.MaxTicks = cfg.MaxTicks
	pc.MinWager = cfg.MinWager
	pc.Policy = CollisionPolicy(cfg.CollisionPolicy)

	specs, err := config.LoadBins(cfg.BinsFile)
	if err != nil {
		return pc, err
	}
	for _, s := range specs {
		pc.Bins = append(pc.Bins, PayoutBin{
			Low:        s.Low,
			High:       s.High,
			Multiplier: s.Multiplier,
			Label:      s.Label,
			Color:      RGB(s.Color),
			Rare:       s.Rare,
		})
	}
	return pc, nil
}
