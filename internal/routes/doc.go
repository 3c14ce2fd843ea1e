// Package routes enumerates the URL paths the generator must pre-render.
//
// Every content document yields one route. The root index document, whose
// logical path is /index, is served at "/"; all other paths, nested index
// documents included, are used verbatim.
package routes
