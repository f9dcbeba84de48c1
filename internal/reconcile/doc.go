// OrderSync - Service Order Synchronization for Tiny ERP
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ordersync

/*
Package reconcile turns Tiny ERP order details into normalized rows and
writes them to the store under a merge policy.

# Normalization

Numbers arrive in Brazilian format ("1.234,56") or as plain JSON numbers.
Dates may be the zero date "0000-00-00", which is stored as NULL. The
status keeps only its leading code ("3 - Finalizada" becomes "3").

Three derived columns are computed from free text:

  - linha_dispositivo from equipamento (iphone, mac, ipad, apple_watch, outros)
  - tipo_servico from descricaoProblema (troca_tela, troca_bateria, ...)
  - origem_cliente from the order's markers, accent-folded and lowercased,
    first keyword wins; unset when nothing matches

# Writes

Each record runs in its own transaction: address, contact, category and
payment form lookups, the order row, then the marker rows. Any failure
rolls the record back and leaves other records untouched. In simulate mode
the whole sequence runs and is rolled back.
*/
package reconcile
