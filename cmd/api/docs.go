// Package main runs the access point HTTP API.
//
// @title       Access Point API
// @version     1.0
// @description Tracks accessibility aids, accepts status reports and notifies followers through web push.
//
// @BasePath /
// @schemes  http https
//
// @tag.name        access-points
// @tag.description Create, list and report access points
// @tag.name        users
// @tag.description User accounts and followed access points
// @tag.name        notifications
// @tag.description Web push subscriptions and test deliveries
// @tag.name        health
// @tag.description Liveness and readiness probes
package main
