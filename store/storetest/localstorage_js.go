//go:build js && wasm

package storetest

import (
	"syscall/js"
	"testing"
)

// fakeStorageSource implements the parts of the Web Storage API the
// localstorage backend uses, plus controls to make it fail.
const fakeStorageSource = `
const items = new Map();
let quota = Infinity;
let failure = null;

const used = () => {
	let n = 0;
	for (const [k, v] of items) n += k.length + v.length;
	return n;
};
const check = () => {
	if (failure !== null) {
		const err = new Error("storage failure: " + failure);
		err.name = failure;
		throw err;
	}
};

return {
	getItem(k) {
		check();
		k = String(k);
		return items.has(k) ? items.get(k) : null;
	},
	setItem(k, v) {
		check();
		k = String(k);
		v = String(v);
		const prev = items.has(k) ? k.length + items.get(k).length : 0;
		if (used() - prev + k.length + v.length > quota) {
			const err = new Error("the quota has been exceeded");
			err.name = "QuotaExceededError";
			throw err;
		}
		items.set(k, v);
	},
	removeItem(k) {
		check();
		items.delete(String(k));
	},
	clear() {
		check();
		items.clear();
	},
	key(i) {
		check();
		const keys = Array.from(items.keys());
		return i < keys.length ? keys[i] : null;
	},
	get length() {
		check();
		return items.size;
	},
	setQuota(n) { quota = n; },
	failWith(name) { failure = name; },
};
`

// FakeLocalStorage is an in-memory window.localStorage.
type FakeLocalStorage struct {
	js.Value
}

// InstallFakeLocalStorage replaces the global localStorage with an empty
// in-memory one for the duration of the test. Tests using it must not run in
// parallel.
func InstallFakeLocalStorage(t *testing.T) FakeLocalStorage {
	t.Helper()

	global := js.Global()
	prev := global.Get("localStorage")
	fake := global.Get("Function").New(fakeStorageSource).Invoke()
	setGlobal("localStorage", fake)
	t.Cleanup(func() { setGlobal("localStorage", prev) })

	return FakeLocalStorage{fake}
}

// setGlobal defines the property instead of assigning it, since runtimes
// that ship Web Storage expose localStorage as a read-only accessor.
func setGlobal(name string, v js.Value) {
	global := js.Global()
	global.Get("Object").Call("defineProperty", global, name, map[string]any{
		"value":        v,
		"writable":     true,
		"configurable": true,
	})
}

// Item returns the raw value stored under the full key, and whether it exists.
func (f FakeLocalStorage) Item(key string) (string, bool) {
	v := f.Call("getItem", key)
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// SetItem stores a raw value under the full key.
func (f FakeLocalStorage) SetItem(key, value string) {
	f.Call("setItem", key, value)
}

// Len returns the number of items across all namespaces.
func (f FakeLocalStorage) Len() int {
	return f.Get("length").Int()
}

// SetQuota limits the total length of keys and values. Writes exceeding it
// throw a QuotaExceededError.
func (f FakeLocalStorage) SetQuota(n int) {
	f.Call("setQuota", n)
}

// FailWith makes every call throw an error with the given name, e.g.
// "SecurityError". An empty name restores normal operation.
func (f FakeLocalStorage) FailWith(name string) {
	if name == "" {
		f.Call("failWith", js.Null())
		return
	}
	f.Call("failWith", name)
}
