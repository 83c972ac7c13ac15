package kv

import (
	"fmt"
	"strconv"
	"time"

	"github.com/finchkv/finch/command"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			ttlSec, _ := cmd.Flags().GetInt64("ttl")
			ifUnset, _ := cmd.Flags().GetBool("if-unset")

			ttl := time.Duration(ttlSec) * time.Second

			if ifUnset {
				inserted, err := kvClient.SetIfUnset(key, []byte(value), ttl)
				if err != nil {
					return err
				}
				if inserted {
					fmt.Println("set successfully")
				} else {
					fmt.Println("not set: key already holds a value")
				}
				return nil
			}

			var err error
			if ttl > 0 {
				err = kvClient.SetTTL(key, []byte(value), ttl)
			} else {
				err = kvClient.Set(key, []byte(value))
			}
			if err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if value, found, err := kvClient.Get(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, value=%s\n", key, found, value)
			}
			return nil
		},
	}
	multiGetCmd = &cobra.Command{
		Use:   "multiget [key]...",
		Short: "Reads the values for a batch of keys in one request",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lookups, err := kvClient.MultiGet(args...)
			if err != nil {
				return err
			}
			for i, lookup := range lookups {
				if lookup.Found {
					fmt.Printf("%d) key=%s, value=%s\n", i, args[i], lookup.Value)
				} else {
					fmt.Printf("%d) key=%s, (nil)\n", i, args[i])
				}
			}
			return nil
		},
	}
	multiSetCmd = &cobra.Command{
		Use:   "multiset [key value]...",
		Short: "Sets a batch of key-value pairs in one request",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args)%2 != 0 {
				return fmt.Errorf("expected an even number of arguments (key value pairs), got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs := make([]command.Pair, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				pairs = append(pairs, command.Pair{Key: args[i], Value: []byte(args[i+1])})
			}
			if err := kvClient.MultiSet(pairs...); err != nil {
				return err
			}
			fmt.Printf("set %d pairs successfully\n", len(pairs))
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if removed, err := kvClient.Delete(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, removed=%t\n", key, removed)
			}
			return nil
		},
	}
	existsCmd = &cobra.Command{
		Use:   "exists [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if found, err := kvClient.Exists(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%t\n", key, found)
			}
			return nil
		},
	}
	expireCmd = &cobra.Command{
		Use:   "expire [key] [seconds]",
		Short: "Attaches a time-to-live to an existing key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			seconds, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("seconds must be a number: %w", err)
			}
			if found, err := kvClient.Expire(key, seconds); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%t\n", key, found)
			}
			return nil
		},
	}
	pingCmd = &cobra.Command{
		Use:   "ping [message]",
		Short: "Checks if the server is alive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var msg []byte
			if len(args) == 1 {
				msg = []byte(args[0])
			}
			reply, err := kvClient.Ping(msg)
			if err != nil {
				return err
			}
			fmt.Println(string(reply))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints metadata about the server's store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvClient.Info()
			if err != nil {
				return err
			}
			fmt.Println(string(info))
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Int64("ttl", 0, "Time-to-live for the key in seconds (0 means no expiry)")
	setCmd.Flags().Bool("if-unset", false, "Only set the key if it does not already hold a value")
}
