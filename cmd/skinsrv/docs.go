package main

// General API documentation for swaggo. Run `swag init -g cmd/skinsrv/docs.go -o docs` to regenerate.
//
// @title           skinsrv API
// @version         1.0
// @description     Multimodal skin-lesion classification: image plus patient metadata in, ranked diagnostic classes out.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
