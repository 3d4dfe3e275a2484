//go:build mythos_host

// web.go backs the reserved `route`/`web.app` forms with a real HTTP
// server: each compiled __route(path, handler) call registers a
// Mythos closure as the handler for that path, and web.start spins up
// net/http plus a gorilla/websocket upgrade endpoint for UI push
// updates (present in the pack's dependency graph via
// chazu-maggie's tooling stack).
package hostlib

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mythos-lang/mythos/vm"
)

type route struct {
	path    string
	handler vm.Value
}

var (
	routesMu sync.Mutex
	routes   []route
	upgrader = websocket.Upgrader{}
	pushConn *websocket.Conn
	pushMu   sync.Mutex
)

// RegisterWeb installs __route plus the web.start/web.route_table/
// ui.push builtins, shadowing the core's diagnostic-raising __route
// default (vm/builtins.go).
func RegisterWeb(m *vm.VM) {
	m.RegisterBuiltin("__route", 2, registerRoute)
	m.RegisterBuiltin("web.start", 1, webStart(m))
	m.RegisterBuiltin("web.route_table", 0, webRouteTable)
	m.RegisterBuiltin("ui.push", 1, uiPush)
}

func registerRoute(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	path, ok := args[0].(vm.String)
	if !ok {
		return nil, vm.TypeError("route path must be a string")
	}
	routesMu.Lock()
	routes = append(routes, route{path: string(path), handler: args[1]})
	routesMu.Unlock()
	return vm.Null{}, nil
}

// webStart launches an HTTP server on port, dispatching each request
// to the Mythos closure registered for its path via __route, plus a
// /__ws upgrade endpoint ui.push writes to.
func webStart(m *vm.VM) func(*vm.VM, []vm.Value) (vm.Value, error) {
	return func(_ *vm.VM, args []vm.Value) (vm.Value, error) {
		port, ok := args[0].(vm.Number)
		if !ok {
			return nil, vm.TypeError("web.start expects a port number")
		}
		mux := http.NewServeMux()
		routesMu.Lock()
		for _, r := range routes {
			r := r
			mux.HandleFunc(r.path, func(w http.ResponseWriter, req *http.Request) {
				result, err := m.Call(r.handler, []vm.Value{vm.String(req.URL.Path)})
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				w.Write([]byte(result.String()))
			})
		}
		routesMu.Unlock()
		mux.HandleFunc("/__ws", handleUpgrade)
		addr := ":" + strconv.Itoa(int(port))
		go http.ListenAndServe(addr, mux)
		return vm.String(addr), nil
	}
}

func handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	pushMu.Lock()
	pushConn = conn
	pushMu.Unlock()
}

func webRouteTable(_ *vm.VM, _ []vm.Value) (vm.Value, error) {
	arr := make([]vm.Value, len(routes))
	routesMu.Lock()
	for i, r := range routes {
		arr[i] = vm.String(r.path)
	}
	routesMu.Unlock()
	return vm.NewArray(arr), nil
}

// uiPush sends a live-reload style message to whatever websocket
// client last connected through /__ws.
func uiPush(_ *vm.VM, args []vm.Value) (vm.Value, error) {
	pushMu.Lock()
	conn := pushConn
	pushMu.Unlock()
	if conn == nil {
		return vm.Bool(false), nil
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(args[0].String())); err != nil {
		return nil, vm.NewHostError("ui.push: %v", err)
	}
	return vm.Bool(true), nil
}
