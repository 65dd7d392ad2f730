// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package merge folds guest sightings into one contact per person.

A Merger is owned by a single run. Records may arrive in any order and
from any number of sources; the result depends only on the set of records
folded in, with one exception: when two sightings carry different non-null
values for the same optional field, the first one folded wins.

Identity:

	identity key = person id, when the platform supplied one
	             = trimmed, lower-cased email otherwise

A record with neither is rejected with ErrMalformedRecord and counted.

Aggregation per contact:

  - EventsAttended counts distinct event IDs; repeated sightings in the
    same event (ticket changes, waitlist promotion) collapse.
  - TotalSpentCents sums every sighting's ticket amount, including repeats
    within one event. Missing or negative amounts add nothing.
  - FirstSeenAt is the earliest registration time seen.
  - Phone, company and each wallet chain or social platform keep the first
    non-null value.
  - Email classification is decided once, when the email first becomes
    known, and never recomputed.

A Merger is not safe for concurrent use.
*/
package merge
