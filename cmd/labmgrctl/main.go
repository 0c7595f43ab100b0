// Command labmgrctl is a small CLI front-end over the Lab Manager's REST
// interface, in the same flag-driven, no-framework style as the teacher's
// other cmd/ binaries (cmd/exec, cmd/gen-jwt): parse flags, make one HTTP
// call, print the result, set the exit code.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	apiURL := flag.String("api-url", envOr("LABMGRCTL_API_URL", "http://localhost:8080"), "lab manager API base URL")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	os.Exit(dispatch(client, *apiURL, args))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [-api-url URL] <command> [args...]

Commands:
  library              list known firmware descriptors
  topology             list active instances (IPs refreshed first)
  spawn <firmware_id>  boot a new instance
  kill <run_id>        stop a running instance
  reset                stop every active instance
`, os.Args[0])
}

// dispatch runs one command and returns the process exit code: 0 on
// success, 1 on any operator error (bad usage, unreachable daemon, a 4xx/5xx
// response), matching the Process exit codes contract.
func dispatch(client *http.Client, apiURL string, args []string) int {
	switch args[0] {
	case "library":
		return doGet(client, apiURL+"/library")
	case "topology":
		return doGet(client, apiURL+"/topology")
	case "spawn":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: spawn requires a firmware_id")
			return 1
		}
		body, _ := json.Marshal(map[string]string{"firmware_id": args[1]})
		return doPost(client, apiURL+"/spawn", body)
	case "kill":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: kill requires a run_id")
			return 1
		}
		return doPost(client, apiURL+"/kill/"+args[1], nil)
	case "reset":
		return doPost(client, apiURL+"/reset_lab", nil)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
		usage()
		return 1
	}
}

func doGet(client *http.Client, url string) int {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printResponse(resp)
}

func doPost(client *http.Client, url string, body []byte) int {
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) int {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading response: %v\n", err)
		return 1
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(data))
	}

	if resp.StatusCode >= 400 {
		return 1
	}
	return 0
}
