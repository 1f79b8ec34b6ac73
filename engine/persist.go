package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/nathoo/zonecore/engine/save"
)

// Save serializes the session. Active combat, structure and encounter
// sessions are not part of the save.
func (e *Engine) Save() ([]byte, error) {
	e.State.RNGSeed = e.RNG.Seed()
	e.State.RNGPosition = e.RNG.Position()
	return save.Save(e.State, e.Inventory, e.Defs)
}

// SaveTo writes the session to path.
func (e *Engine) SaveTo(path string) error {
	data, err := e.Save()
	if err != nil {
		return err
	}
	if err := save.WriteFile(path, data); err != nil {
		return err
	}
	e.logger("save").WithField("path", path).Info("game saved")
	return nil
}

// Load replaces the session with saved data. On error nothing changes.
func (e *Engine) Load(data []byte) (save.Report, error) {
	sd, err := save.Load(data)
	if err != nil {
		return save.Report{}, err
	}
	rep := save.ApplySave(e.State, e.Inventory, e.Defs, sd)
	e.RestoreRNG(sd.RNGSeed, sd.RNGPosition)
	e.resetSessions()

	log := e.logger("save")
	for _, st := range rep.LostStacks {
		log.WithFields(logrus.Fields{"item": st.Item, "quantity": st.Quantity}).Warn("stack did not fit after load")
	}
	for _, id := range rep.DroppedInstances {
		log.WithField("marker", id).Warn("structure instance dropped, will regenerate")
	}
	return rep, nil
}

// LoadFrom reads and applies a save file.
func (e *Engine) LoadFrom(path string) (save.Report, error) {
	data, err := save.ReadFile(path)
	if err != nil {
		return save.Report{}, err
	}
	rep, err := e.Load(data)
	if err != nil {
		return rep, err
	}
	e.logger("save").WithField("path", path).Info("game loaded")
	return rep, nil
}
