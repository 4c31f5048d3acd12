package anonymize

import (
	"context"

	"github.com/forumkit/anonboard/src/db"
)

// In-memory stand-ins for the store and identity collaborators.

type fakeStore struct {
	objects map[string]map[string]string

	// When set, every operation fails with this error.
	err error

	getCalls      int
	getBatchCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]map[string]string)}
}

func (f *fakeStore) Get(ctx context.Context, key string) (map[string]string, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	obj := f.objects[key]
	if obj == nil {
		return nil, nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) GetBatch(ctx context.Context, keys []string) ([]map[string]string, error) {
	f.getBatchCalls++
	if f.err != nil {
		return nil, f.err
	}
	result := make([]map[string]string, len(keys))
	for i, key := range keys {
		obj := f.objects[key]
		if obj == nil {
			continue
		}
		out := make(map[string]string, len(obj))
		for k, v := range obj {
			out[k] = v
		}
		result[i] = out
	}
	return result, nil
}

func (f *fakeStore) SetField(ctx context.Context, key, field, value string) error {
	if f.err != nil {
		return f.err
	}
	if f.objects[key] == nil {
		f.objects[key] = make(map[string]string)
	}
	f.objects[key][field] = value
	return nil
}

func (f *fakeStore) SetFields(ctx context.Context, key string, fields map[string]string) error {
	if f.err != nil {
		return f.err
	}
	if f.objects[key] == nil {
		f.objects[key] = make(map[string]string)
	}
	for k, v := range fields {
		f.objects[key][k] = v
	}
	return nil
}

func (f *fakeStore) SetObject(ctx context.Context, key string, fields map[string]string) error {
	return f.SetFields(ctx, key, fields)
}

func (f *fakeStore) DeleteFields(ctx context.Context, key string, fields []string) error {
	if f.err != nil {
		return f.err
	}
	for _, field := range fields {
		delete(f.objects[key], field)
	}
	return nil
}

type fakeIdentity struct {
	users  map[int]map[string]string
	admins map[int]bool
	slugs  map[string]int

	// When set, every operation fails with this error.
	err error

	adminCalls  int
	fieldsCalls int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		users:  make(map[int]map[string]string),
		admins: make(map[int]bool),
		slugs:  make(map[string]int),
	}
}

func (f *fakeIdentity) addUser(uid int, username, userslug string, admin bool) {
	f.users[uid] = map[string]string{
		"username":    username,
		"userslug":    userslug,
		"displayname": username,
		"fullname":    "",
		"picture":     "",
		"designation": "",
		"location":    "",
	}
	f.admins[uid] = admin
	f.slugs[userslug] = uid
}

func (f *fakeIdentity) IsAdministrator(ctx context.Context, uid int) (bool, error) {
	f.adminCalls++
	if f.err != nil {
		return false, f.err
	}
	return f.admins[uid], nil
}

func (f *fakeIdentity) GetFields(ctx context.Context, uid int, fields []string) (map[string]string, error) {
	f.fieldsCalls++
	if f.err != nil {
		return nil, f.err
	}
	user := f.users[uid]
	if user == nil {
		return nil, db.NotFound
	}
	result := make(map[string]string, len(fields))
	for _, field := range fields {
		if v, ok := user[field]; ok {
			result[field] = v
		}
	}
	return result, nil
}

func (f *fakeIdentity) ResolveSlugToUID(ctx context.Context, slug string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	uid, ok := f.slugs[slug]
	if !ok {
		return 0, db.NotFound
	}
	return uid, nil
}
