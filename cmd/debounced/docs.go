package main

// General API documentation for swaggo. The registered document lives in
// internal/apidocs.
//
// @title           debounced API
// @version         1.0
// @description     HTTP API for a per-key event debouncer.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
