package cmd

import (
	"fmt"
)

// Init creates the database file, or repairs an existing one
func Init(opts Options) {
	store := NewStore(opts)
	defer store.Close()

	created, err := store.Init()
	if err != nil {
		HandleError(err)
	}
	owner, err := store.OwnerID()
	if err != nil {
		HandleError(err)
	}

	if created {
		fmt.Printf("Initialized %s\n", store.Path())
	} else {
		fmt.Printf("%s already initialized\n", store.Path())
	}
	fmt.Printf("Owner: %s\n", owner)
}
