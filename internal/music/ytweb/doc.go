// Package ytweb talks plain HTTP to YouTube: the proxy-aware client, results
// page search and audio format selection. It has no cgo dependencies.
package ytweb
