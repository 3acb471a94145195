// Package integration defines the marketplace integration domain: the
// MarketplaceAdapter port implemented per platform in the infrastructure
// layer, and the PlatformListing ledger that tracks per-(product, platform)
// sync state. The sync orchestrator in the application layer is the only
// writer of ledger state.
package integration
