package main

import (
	"context"
	"strings"

	"github.com/instacad/backoffice/core/user"
)

// addStaff updates or creates a back-office account, matching on mobile.
func (cli *commandLine) addStaff(name, mobile, email, role, pwd string) error {
	first, last := name, ""
	if parts := strings.Fields(name); len(parts) > 1 {
		first, last = parts[0], strings.Join(parts[1:], " ")
	}

	_, err := cli.usrSvc.CreateStaff(context.Background(), user.NewStaffUser{
		FirstName: first,
		LastName:  last,
		Mobile:    mobile,
		Email:     email,
		Role:      role,
		Password:  pwd,
	})
	return err
}
