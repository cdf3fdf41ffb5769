// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package devicelock limits how many physical devices may display a project.

	registry := devicelock.NewRegistry(store, cfg.MaxDevices, cfg.RegistryCacheTTL, cfg.StoreTimeout)
	decision, err := registry.Authorize(ctx, projectID, fingerprint)

A fingerprint already bound to the project is allowed. A new fingerprint
is bound when the project has a free slot and denied otherwise. The check
and the insert are one atomic claim in the store (db.Store.ClaimDeviceSlot).

Store failures deny. Allowed decisions are cached per (project, device)
for the display session; Forget clears a project after an admin reset.
A cached decision is still confirmed with db.Store.DeviceLinked, so a
reset made through another server takes effect on the next call.
*/
package devicelock
