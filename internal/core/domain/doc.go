// Package domain contains the core business entities for mirador:
// tenants, remote document metadata, manifests, chunks, change sets and
// sync run results. It has no dependencies on adapters or infrastructure.
package domain
