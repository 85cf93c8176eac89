// Package registry maps configured providers and their model lists to
// client factories. It answers "which provider serves this model" and
// supports hot-swapping entries when configuration reloads.
package registry
