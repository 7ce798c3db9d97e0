package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Instakoo Place Diagnosis API
// @version 2.0
// @description Diagnosis API for public profiles and map listings.
// @BasePath /
