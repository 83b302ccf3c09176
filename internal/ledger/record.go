package ledger

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"ammPool/internal/amm"
	"ammPool/internal/model"
)

func recordFromPool(p *amm.Pool, version uint64, createdAt, updatedAt time.Time) model.PoolRecord {
	rec := model.PoolRecord{
		Address:     p.Config.Addresses.Config.String(),
		ProgramID:   p.Config.ProgramID.String(),
		Seed:        p.Config.Seed,
		MintX:       p.Config.MintX.String(),
		MintY:       p.Config.MintY.String(),
		FeeBps:      p.Config.FeeBps,
		ConfigBump:  p.Config.Addresses.ConfigBump,
		LPMint:      p.Config.Addresses.LPMint.String(),
		LPMintBump:  p.Config.Addresses.LPMintBump,
		VaultX:      p.Config.Addresses.VaultX.String(),
		VaultY:      p.Config.Addresses.VaultY.String(),
		ReserveX:    p.State.ReserveX,
		ReserveY:    p.State.ReserveY,
		TotalShares: p.State.TotalShares,
		Locked:      p.State.Locked,
		Version:     version,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	if p.Config.Authority != nil {
		rec.Authority = p.Config.Authority.String()
	}
	return rec
}

func poolFromRecord(rec model.PoolRecord) (*amm.Pool, error) {
	var cfg amm.Config
	for field, target := range map[string]struct {
		text string
		dst  *solana.PublicKey
	}{
		"address":    {rec.Address, &cfg.Addresses.Config},
		"program_id": {rec.ProgramID, &cfg.ProgramID},
		"mint_x":     {rec.MintX, &cfg.MintX},
		"mint_y":     {rec.MintY, &cfg.MintY},
		"lp_mint":    {rec.LPMint, &cfg.Addresses.LPMint},
		"vault_x":    {rec.VaultX, &cfg.Addresses.VaultX},
		"vault_y":    {rec.VaultY, &cfg.Addresses.VaultY},
	} {
		key, err := solana.PublicKeyFromBase58(target.text)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %s: %w", rec.Address, field, err)
		}
		*target.dst = key
	}
	if rec.Authority != "" {
		authority, err := solana.PublicKeyFromBase58(rec.Authority)
		if err != nil {
			return nil, fmt.Errorf("pool %s: authority: %w", rec.Address, err)
		}
		cfg.Authority = &authority
	}
	cfg.Seed = rec.Seed
	cfg.FeeBps = rec.FeeBps
	cfg.Addresses.ConfigBump = rec.ConfigBump
	cfg.Addresses.LPMintBump = rec.LPMintBump

	return &amm.Pool{
		Config: cfg,
		State: amm.State{
			ReserveX:    rec.ReserveX,
			ReserveY:    rec.ReserveY,
			TotalShares: rec.TotalShares,
			Locked:      rec.Locked,
		},
	}, nil
}

func metaFromRecord(rec model.PoolRecord) model.PoolMeta {
	return model.PoolMeta{MintX: rec.MintX, MintY: rec.MintY, FeeBps: rec.FeeBps, Seed: rec.Seed}
}
