package service

import "github.com/erazemk/najdeno/internal/model"

func requireAuth(c model.Caller) error {
	if !c.Authenticated() {
		return model.ErrUnauthorized
	}
	return nil
}

func requireStaff(c model.Caller) error {
	if !c.Authenticated() {
		return model.ErrUnauthorized
	}
	if !c.IsStaff() {
		return model.ErrForbidden
	}
	return nil
}

func requireStudent(c model.Caller) error {
	if !c.Authenticated() {
		return model.ErrUnauthorized
	}
	if !c.IsStudent() {
		return model.ErrForbidden
	}
	return nil
}
