// Package fetch downloads source videos over HTTP into the staging
// directory and derives display titles for queue items.
package fetch
